package blockcopy

import "github.com/pkg/errors"

func errBlockFailed(blockKey string) error {
	return errors.Errorf("block %s: all replicas failed", blockKey)
}
