package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

func getS3Client() (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			os.Getenv("R2_ACCESS_KEY"),
			os.Getenv("R2_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", os.Getenv("R2_ACCOUNT_ID")))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	return client, nil
}

func bucketName() string {
	if b := os.Getenv("R2_BUCKET_NAME"); b != "" {
		return b
	}
	return "daze-installer-uploads"
}

func publicURL(objectKey string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s/%s",
		os.Getenv("R2_ACCOUNT_ID"), bucketName(), objectKey)
}

func uniqueFilename(original string) string {
	ext := filepath.Ext(original)
	return fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
}

// UploadInstallationPhoto stores a processed photo under the
// installer's folder and returns its public URL.
func UploadInstallationPhoto(installerEmail string, installationID uint, body *bytes.Buffer, originalName, contentType string) (string, error) {
	safeInstaller := slug.Make(strings.Split(installerEmail, "@")[0])
	objectKey := filepath.Join(
		"installers", safeInstaller,
		"installations", fmt.Sprintf("%d", installationID),
		"photos", uniqueFilename(originalName),
	)

	return putObject(objectKey, bytes.NewReader(body.Bytes()), contentType)
}

// UploadQuotePdf stores a quote document for a lead.
func UploadQuotePdf(leadID uint, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("could not open file: %v", err)
	}
	defer src.Close()

	objectKey := filepath.Join(
		"leads", fmt.Sprintf("%d", leadID),
		"quotes", uniqueFilename(file.Filename),
	)

	return putObject(objectKey, src, "application/pdf")
}

func putObject(objectKey string, body io.Reader, contentType string) (string, error) {
	client, err := getS3Client()
	if err != nil {
		return "", err
	}

	_, err = client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      aws.String(bucketName()),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("could not upload to storage: %v", err)
	}

	return publicURL(objectKey), nil
}

// objectKeyFromURL recovers the object key from a public URL built by
// publicURL: https://{account}.r2.cloudflarestorage.com/{bucket}/{key}.
func objectKeyFromURL(fileURL string) (string, error) {
	parts := strings.Split(fileURL, "/")
	if len(parts) < 5 {
		return "", fmt.Errorf("invalid file URL: %s", fileURL)
	}
	return strings.Join(parts[4:], "/"), nil
}

// DeleteObject removes a stored file by its public URL.
func DeleteObject(fileURL string) error {
	key, err := objectKeyFromURL(fileURL)
	if err != nil {
		return err
	}

	client, err := getS3Client()
	if err != nil {
		return err
	}

	_, err = client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName()),
		Key:    aws.String(key),
	})

	return err
}
