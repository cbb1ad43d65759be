package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Store struct {
	client     *minio.Client
	bucketName string
	region     string
}

// New buat koneksi MinIO
func New(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	// pastikan bucket ada
	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucketName: bucket, region: region}, nil
}

// SavePhoto implementasi inventory.PhotoStore
func (s *Store) SavePhoto(ctx context.Context, data []byte, filename string) (string, error) {
	return s.put(ctx, data, "photos/"+filename, "image/jpeg")
}

// SaveReport implementasi recon.ReportStore
func (s *Store) SaveReport(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.put(ctx, data, "reports/"+filename, contentType)
}

func (s *Store) put(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return key, nil
}

// FileURL URL publik (jika bucket public), kalau private harus presigned URL
func (s *Store) FileURL(ref string) string {
	return fmt.Sprintf("http://%s/%s/%s", s.client.EndpointURL().Host, s.bucketName, ref)
}

// Ping cek bucket masih reachable (dipakai health check)
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucketName)
	return err
}
