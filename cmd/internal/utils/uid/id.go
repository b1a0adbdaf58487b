package uid

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/log"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init configures the snowflake node. Only the first call has any effect.
func Init(machineID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			err = fmt.Errorf("failed to initialize snowflake node %d: %w", machineID, err)
		}
	})
	return err
}

func Generate() int64 {
	if node == nil {
		log.Fatalf("uid package not initialized")
	}
	return node.Generate().Int64()
}

// Assign sets *id to a fresh snowflake unless it already holds one.
func Assign(id *int64) {
	if *id == 0 {
		*id = Generate()
	}
}
