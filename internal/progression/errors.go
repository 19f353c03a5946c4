package progression

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNodeLocked is returned when a node is started or completed before
	// its prerequisites are.
	ErrNodeLocked = errors.New("node is locked")

	// ErrNodeInactive is returned for nodes that are retired or belong to a
	// tree that no longer lists them.
	ErrNodeInactive = errors.New("node is inactive")
)

// LockedError names the prerequisites still blocking a node. It matches
// ErrNodeLocked.
type LockedError struct {
	NodeID  string
	Missing []string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("node %q is locked: waiting on %s", e.NodeID, strings.Join(e.Missing, ", "))
}

func (e *LockedError) Is(target error) bool { return target == ErrNodeLocked }
