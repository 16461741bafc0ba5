package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/flarebyte/gitcred/internal/credential"
	"github.com/flarebyte/gitcred/internal/store"
	"github.com/flarebyte/gitcred/internal/target"
)

// resolveTarget turns git parameters into the storage key.
func resolveTarget(ctx context.Context, env Env, params map[string]string) (string, error) {
	u, err := credential.URL(params)
	if err != nil {
		return "", err
	}
	name, err := credential.TargetName(u)
	if err != nil {
		return "", err
	}
	if env.Rewriter == nil {
		return name, nil
	}
	return env.Rewriter.Rewrite(ctx, target.Fields{
		Protocol: u.Scheme,
		Host:     u.Host,
		Path:     params["path"],
		Target:   name,
	})
}

func getOp(ctx context.Context, env Env, params map[string]string) (map[string]string, error) {
	name, err := resolveTarget(ctx, env, params)
	if err != nil {
		fmt.Fprintln(env.Stderr, err.Error())
		return nil, nil
	}
	wantUser := params["username"]
	env.Log.Info().Str("username", wantUser).Str("target", name).Msg("looking up credential")

	c, err := env.Store.Get(name)
	if errors.Is(err, store.ErrNotFound) {
		env.Log.Info().Msg("no credential found")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if wantUser != "" && wantUser != c.Username {
		env.Log.Info().Str("stored", c.Username).Msg("stored credential is for another user")
		return nil, nil
	}
	env.Log.Info().Msg("found a credential")
	return map[string]string{
		"username": c.Username,
		"password": c.Password,
	}, nil
}

func storeOp(ctx context.Context, env Env, params map[string]string) (map[string]string, error) {
	userName := params["username"]
	password := params["password"]

	abort := false
	if userName == "" {
		fmt.Fprintln(env.Stderr, "username parameter must be provided")
		abort = true
	}
	if password == "" {
		fmt.Fprintln(env.Stderr, "password parameter must be provided")
		abort = true
	}
	if abort {
		return nil, nil
	}

	name, err := resolveTarget(ctx, env, params)
	if err != nil {
		fmt.Fprintln(env.Stderr, err.Error())
		return nil, nil
	}
	env.Log.Info().Str("username", userName).Str("target", name).Msg("storing credential")
	if err := env.Store.Put(name, credential.Credential{Username: userName, Password: password}); err != nil {
		return nil, fmt.Errorf("failed to write credential: %w", err)
	}
	return nil, nil
}

func eraseOp(ctx context.Context, env Env, params map[string]string) (map[string]string, error) {
	name, err := resolveTarget(ctx, env, params)
	if err != nil {
		fmt.Fprintln(env.Stderr, err.Error())
		return nil, nil
	}
	env.Log.Info().Str("target", name).Msg("erasing credential")
	if err := env.Store.Delete(name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			env.Log.Info().Msg("no credential to erase")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to erase credential: %w", err)
	}
	return nil, nil
}
