package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a time-ordered unique int64 ID.
// Falls back to node 0 when Init was never called (tests, tools).
// It panics if an earlier Init failed and left no node.
func New() int64 {
	if err := Init(0); err != nil {
		panic(fmt.Sprintf("id: snowflake node init: %v", err))
	}
	if node == nil {
		panic("id: snowflake node not initialized")
	}
	return node.Generate().Int64()
}
