//go:build !windows

package schedtask

import "context"

func runSchtasks(ctx context.Context, args []string) ([]byte, error) {
	return nil, ErrUnsupported
}
