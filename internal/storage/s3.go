package storage

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

// Envelope magic numbers recognised by Decrypt.
const (
	MagicCBC = "3NCR0PTD"
	MagicGCM = "GCM3NCR0"

	pbkdf2Iterations = 100000
)

// Options configures the S3 client. Empty fields fall back to the default
// AWS credential chain and endpoint.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PathStyle bool
}

// S3Client wraps the AWS S3 client with envelope encryption helpers.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
}

// FileMetadata describes an object written by Upload.
type FileMetadata struct {
	OriginalName string
	ContentType  string
	Metadata     map[string]string
}

// NewS3Client creates a new S3 client.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	var loaders []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loaders = append(loaders, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: opts.Bucket,
	}, nil
}

// WithBucket returns a client sharing the same connection but bound to bucket.
func (s *S3Client) WithBucket(bucket string) *S3Client {
	return &S3Client{client: s.client, uploader: s.uploader, bucketName: bucket}
}

// HeadBucket checks that the bucket exists and the credentials can reach it.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucketName, err)
	}
	return nil
}

// DownloadTo streams an object into w. When password is set the object is
// decrypted first.
func (s *S3Client) DownloadTo(ctx context.Context, key, password string, w io.Writer) (int64, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	if password == "" {
		n, err := io.Copy(w, result.Body)
		if err != nil {
			return n, fmt.Errorf("failed to read S3 object: %w", err)
		}
		return n, nil
	}

	encrypted, err := io.ReadAll(result.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read S3 object: %w", err)
	}
	plain, format, err := Decrypt(encrypted, password)
	if err != nil {
		return 0, fmt.Errorf("failed to decrypt data: %w", err)
	}
	log.Debug().Str("key", key).Str("encryption_format", format).Int("size", len(plain)).Msg("decrypted S3 object")
	n, err := w.Write(plain)
	return int64(n), err
}

// Upload stores data under key. A non-empty password wraps the payload in
// the CBC envelope before upload.
func (s *S3Client) Upload(ctx context.Context, key string, data []byte, password string, metadata *FileMetadata) error {
	body := data
	s3Metadata := make(map[string]string)
	var contentType *string

	if metadata != nil {
		if metadata.OriginalName != "" {
			s3Metadata["name"] = metadata.OriginalName
		}
		if metadata.ContentType != "" {
			contentType = aws.String(metadata.ContentType)
		}
		for k, v := range metadata.Metadata {
			s3Metadata[k] = v
		}
	}

	if password != "" {
		enc, err := EncryptCBC(data, password)
		if err != nil {
			return fmt.Errorf("failed to encrypt data: %w", err)
		}
		body = enc
		s3Metadata["encrypted"] = "true"
		s3Metadata["encryption-format"] = MagicCBC
		contentType = aws.String("application/octet-stream")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: contentType,
		Metadata:    s3Metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	log.Debug().Str("key", key).Int("size", len(body)).Bool("encrypted", password != "").Msg("uploaded object to S3")
	return nil
}

// Decrypt detects the envelope format by magic number and returns the
// plaintext along with the detected format.
func Decrypt(data []byte, password string) ([]byte, string, error) {
	if len(data) < 8 {
		return nil, "", fmt.Errorf("encrypted data too short: %d bytes", len(data))
	}

	switch string(data[:8]) {
	case MagicGCM:
		out, err := decryptGCM(data, password)
		return out, MagicGCM, err
	case MagicCBC:
		out, err := decryptCBC(data, password)
		return out, MagicCBC, err
	default:
		return nil, "", fmt.Errorf("unknown encryption envelope")
	}
}

// decryptGCM handles magic(8) + salt(16) + nonce(12) + ciphertext + tag(16).
func decryptGCM(data []byte, password string) ([]byte, error) {
	if len(data) < 8+16+12+16 {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(data))
	}
	salt := data[8:24]
	nonce := data[24:36]

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, data[36:], nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plaintext, nil
}

// decryptCBC handles magic(8) + hash(32) + length(8) + salt(16) + iv(16) + ciphertext.
func decryptCBC(data []byte, password string) ([]byte, error) {
	if len(data) < 8+32+8+16+16 {
		return nil, fmt.Errorf("CBC data too short: %d bytes", len(data))
	}

	storedHash := data[8:40]
	length := binary.BigEndian.Uint64(data[40:48])
	encrypted := data[48:]
	if uint64(len(encrypted)) != length {
		return nil, fmt.Errorf("length mismatch: expected %d, got %d", length, len(encrypted))
	}

	hash := sha256.Sum256(encrypted)
	if !bytes.Equal(storedHash, hash[:]) {
		return nil, fmt.Errorf("hash verification failed - data corrupted")
	}

	salt := encrypted[:16]
	iv := encrypted[16:32]
	ciphertext := encrypted[32:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of block size")
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return removePKCS7Padding(plaintext)
}

// EncryptCBC wraps data in the CBC envelope understood by Decrypt.
func EncryptCBC(data []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	padded := applyPKCS7Padding(data, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	encrypted := make([]byte, 0, 32+len(ciphertext))
	encrypted = append(encrypted, salt...)
	encrypted = append(encrypted, iv...)
	encrypted = append(encrypted, ciphertext...)

	hash := sha256.Sum256(encrypted)
	lengthBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(lengthBytes, uint64(len(encrypted)))

	result := make([]byte, 0, 8+32+8+len(encrypted))
	result = append(result, MagicCBC...)
	result = append(result, hash[:]...)
	result = append(result, lengthBytes...)
	result = append(result, encrypted...)
	return result, nil
}

func applyPKCS7Padding(data []byte, blockSize int) []byte {
	padding := blockSize - (len(data) % blockSize)
	out := make([]byte, len(data), len(data)+padding)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func removePKCS7Padding(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > aes.BlockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding length: %d", n)
	}
	for i := len(data) - n; i < len(data); i++ {
		if data[i] != byte(n) {
			return nil, fmt.Errorf("invalid padding at position %d", i)
		}
	}
	return data[:len(data)-n], nil
}
