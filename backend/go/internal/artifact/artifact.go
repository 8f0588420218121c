package artifact

import (
	"MindGraphDB/backend/go/internal/classifier"
	"MindGraphDB/backend/go/pkg/logger"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

// ErrNoArtifact 表示本地和远端都没有模型文件。
var ErrNoArtifact = errors.New("model artifact not found")

// Store 负责模型文件的持久化。
type Store interface {
	// Save 保存模型并返回其位置描述。
	Save(ctx context.Context, m *classifier.Model) (string, error)
	Load(ctx context.Context) (*classifier.Model, error)
}

// FileStore 把模型保存为本地 JSON 文件。
type FileStore struct {
	Path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Save(_ context.Context, m *classifier.Model) (string, error) {
	if err := classifier.SaveFile(s.Path, m); err != nil {
		return "", err
	}
	return s.Path, nil
}

func (s *FileStore) Load(_ context.Context) (*classifier.Model, error) {
	m, err := classifier.LoadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoArtifact
	}
	return m, err
}

// MinIOMirror 在本地文件之外把模型上传到 MinIO。
// 本地文件缺失时（例如新部署的实例）从 MinIO 下载。
type MinIOMirror struct {
	local  *FileStore
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewMinIOMirror 创建一个带 MinIO 副本的模型存储。
func NewMinIOMirror(local *FileStore, client *minio.Client, bucket string, log *logger.Logger) *MinIOMirror {
	if log == nil {
		log = logger.Discard()
	}
	return &MinIOMirror{local: local, client: client, bucket: bucket, log: log}
}

func (s *MinIOMirror) objectName() string {
	return filepath.Base(s.local.Path)
}

func (s *MinIOMirror) Save(ctx context.Context, m *classifier.Model) (string, error) {
	path, err := s.local.Save(ctx, m)
	if err != nil {
		return "", err
	}
	_, err = s.client.FPutObject(ctx, s.bucket, s.objectName(), path, minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("上传模型到 MinIO 失败: %w", err)
	}
	return fmt.Sprintf("minio://%s/%s", s.bucket, s.objectName()), nil
}

func (s *MinIOMirror) Load(ctx context.Context) (*classifier.Model, error) {
	m, err := s.local.Load(ctx)
	if !errors.Is(err, ErrNoArtifact) {
		return m, err
	}

	s.log.WithPayload(map[string]interface{}{
		"bucket": s.bucket,
		"object": s.objectName(),
	}).Info("Local model missing, downloading from MinIO")

	if err := s.client.FGetObject(ctx, s.bucket, s.objectName(), s.local.Path, minio.GetObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNoArtifact
		}
		return nil, fmt.Errorf("从 MinIO 下载模型失败: %w", err)
	}
	return s.local.Load(ctx)
}
