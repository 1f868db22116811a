package namenode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockIdEqualityIsByID(t *testing.T) {
	a := BlockId{ID: "blk-1", GenerationStamp: 1, NumBytes: 100}
	b := BlockId{ID: "blk-1", GenerationStamp: 2, NumBytes: 200}
	c := BlockId{ID: "blk-2"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestDatanodeRefIdentity(t *testing.T) {
	d := DatanodeRef{Hostname: "dn1", Port: 9000}
	assert.Equal(t, "dn1:9000", d.Identity())
}
