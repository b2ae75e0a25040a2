package filestore

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"google.golang.org/api/option"
)

var _ FileStore = GoogleFileStore{}

func NewGoogleFileStore(storageHost string, opts ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return GoogleFileStore{}, errors.Wrap(err, "Failed to create Google cloud storage client")
	}

	return GoogleFileStore{
		storageHost: storageHost,
		client:      client,
	}, nil
}

type GoogleFileStore struct {
	storageHost string
	client      *storage.Client
}

// WriteFile stores the content at a URL of the shape
// <storage host>/<bucket>/<object path>
func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, fileContent []byte) error {
	bucketName, objectPath, err := g.splitFileURL(fileURL)
	if err != nil {
		return errors.Wrap(err, "Failed to resolve the file URL to an object")
	}

	writer := g.client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	if _, err := writer.Write(fileContent); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "Failed to write content to cloud storage")
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "Failed to finalize the cloud storage object")
	}

	return nil
}

func (g GoogleFileStore) splitFileURL(fileURL string) (string, string, error) {
	hostPrefix := g.storageHost + "/"
	if !strings.HasPrefix(fileURL, hostPrefix) {
		return "", "", errors.Errorf("URL %s is not on the storage host %s", fileURL, g.storageHost)
	}

	bucketAndPath := strings.TrimPrefix(fileURL, hostPrefix)
	bucketName, objectPath, found := strings.Cut(bucketAndPath, "/")
	if !found || bucketName == "" || objectPath == "" {
		return "", "", errors.Errorf("URL %s doesn't contain a bucket and object path", fileURL)
	}

	return bucketName, objectPath, nil
}
