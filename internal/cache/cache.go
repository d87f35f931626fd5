package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"kanban/internal/config"

	"github.com/valkey-io/valkey-go"
)

// New connects to valkey. Callers own the client and must Close it.
func New(env config.EnvVariables) (valkey.Client, error) {
	options := valkey.ClientOption{
		InitAddress: []string{env.ValkeyHost + ":" + env.ValkeyPort},
		Password:    env.ValkeyPassword,
		Username:    env.ValkeyUsername,
	}

	if env.ValkeyIsSsl {
		options.TLSConfig = &tls.Config{
			ServerName: env.ValkeyHost,
		}
	}

	client, err := valkey.NewClient(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	return client, nil
}

func Ping(ctx context.Context, client valkey.Client) error {
	return client.Do(ctx, client.B().Ping().Build()).Error()
}
