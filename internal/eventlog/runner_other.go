//go:build !windows

package eventlog

import "context"

func runScript(ctx context.Context, script string) ([]byte, error) {
	return nil, ErrUnsupported
}
