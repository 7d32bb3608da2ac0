package garage

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"k8s.io/utils/ptr"

	"github.com/bmarinov/garage-bootstrap/internal/s3"
)

type AccessKeyClient struct {
	*adminAPIHttpClient
}

func (a *AccessKeyClient) List(ctx context.Context) ([]s3.AccessKey, error) {
	var result []ListKeysItem
	err := a.call(ctx, "list keys", http.MethodGet, "/v2/ListKeys", nil, nil, &result)
	if err != nil {
		return nil, err
	}

	keys := make([]s3.AccessKey, 0, len(result))
	for _, k := range result {
		keys = append(keys, s3.AccessKey{ID: k.ID, Name: k.Name})
	}
	return keys, nil
}

// Delete removes the key. A key that is already gone is not an error.
func (a *AccessKeyClient) Delete(ctx context.Context, id string) error {
	params := url.Values{}
	params.Add("id", id)

	err := a.call(ctx, "delete key", http.MethodPost, "/v2/DeleteKey", &params, nil, nil)
	if errors.Is(err, s3.ErrResourceNotFound) {
		return nil
	}
	return err
}

// Import registers an externally generated key id and secret pair.
func (a *AccessKeyClient) Import(ctx context.Context, id, secret, name string) (s3.AccessKey, error) {
	request := ImportKeyRequest{
		AccessKeyID:     id,
		SecretAccessKey: secret,
	}
	if name != "" {
		request.Name = ptr.To(name)
	}

	var result AccessKeyResponse
	err := a.call(ctx, "import key", http.MethodPost, "/v2/ImportKey", nil, request, &result)
	if err != nil {
		return s3.AccessKey{}, err
	}

	return s3.AccessKey{
		ID:     result.AccessKeyID,
		Name:   result.Name,
		Secret: result.SecretAccessKey,
	}, nil
}
