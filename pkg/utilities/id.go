package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a globally unique, sortable string id. Accounts and
// stories use these as primary keys.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewSnowflakeID generates a snowflake id string for embedded records
// (comments). The node id comes from SNOWFLAKE_NODE, defaulting to 1. If the
// node cannot be initialized it falls back to a KSUID so callers always get a
// unique id.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		id := int64(1)
		if v, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64); err == nil {
			id = v
		}
		n, err := snowflake.NewNode(id)
		if err != nil {
			return
		}
		node = n
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}
