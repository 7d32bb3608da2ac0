package bootstrap

import (
	"context"
	"fmt"

	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

// KeyName is given to the imported access key.
const KeyName = "bootstrap"

// KeyReconciler leaves exactly one access key in the cluster: every existing
// key is deleted, then the configured pair is imported.
type KeyReconciler struct {
	keys   AccessKeyClient
	id     string
	secret string
}

func (r *KeyReconciler) Name() string { return "access-key" }

func (r *KeyReconciler) Run(ctx context.Context) error {
	log := logf.FromContext(ctx)

	existing, err := r.keys.List(ctx)
	if err != nil {
		return r.fail(fmt.Errorf("list keys: %w", err))
	}

	for _, key := range existing {
		if err := r.keys.Delete(ctx, key.ID); err != nil {
			return r.fail(fmt.Errorf("delete key %s: %w", key.ID, err))
		}
		log.Info("Deleted access key", "id", key.ID, "name", key.Name)
	}

	imported, err := r.keys.Import(ctx, r.id, r.secret, KeyName)
	if err != nil {
		return r.fail(fmt.Errorf("import key %s: %w", r.id, err))
	}
	log.Info("Imported access key", "id", imported.ID, "deleted", len(existing))

	return nil
}

func (r *KeyReconciler) fail(err error) error {
	return &StartupError{Kind: KeyImportFailed, Phase: r.Name(), Err: err}
}
