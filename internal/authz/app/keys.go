package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JanssenProject/jans-sub054/internal/authz/store"
	"github.com/JanssenProject/jans-sub054/pkg/cryptox"
	"github.com/JanssenProject/jans-sub054/pkg/jwtx"
)

// InitKeys creates the KeyManager holding the token signing keys and the
// request object decryption key.
//
// Storage modes:
//   - "ephemeral": keys are generated on startup and kept only in memory.
//     Every issued JWT becomes unverifiable when the service restarts.
//   - "persistent": keys are sealed with the master key and stored in the
//     database, so tokens survive restarts.
func InitKeys(ctx context.Context, cfg Config, db store.Store, sealer *cryptox.Sealer, logger *slog.Logger) (*jwtx.KeyManager, error) {
	opts := jwtx.KeyManagerOptions{
		Algorithm: cfg.Algorithm,
		Issuer:    cfg.Issuer,
		RSABits:   cfg.RSABits,
		NumKeys:   cfg.NumKeys,
	}

	var (
		keyManager *jwtx.KeyManager
		err        error
	)

	switch cfg.KeyStorageMode {
	case KeyStoragePersistent:
		logger.Info("initializing persistent key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
		)

		keyManager, err = jwtx.NewPersistentKeyManager(ctx, store.NewKeyStoreAdapter(db), sealer, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)

	default:
		logger.Info("initializing ephemeral key manager",
			"algorithm", cfg.Algorithm,
			"num_keys", cfg.NumKeys,
		)

		keyManager, err = jwtx.NewEphemeralKeyManager(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing keys",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)
		logger.Warn("tokens issued before this start are no longer verifiable")
	}

	return keyManager, nil
}
