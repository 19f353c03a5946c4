package skilltree

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_StaticsPasses(t *testing.T) {
	if err := Validate(statics, staticsNodes()); err != nil {
		t.Fatalf("statics validation failed: %v", err)
	}
}

func TestValidate_DetectsCycle(t *testing.T) {
	nodes := []Node{
		{ID: "root", TreeID: "t", Active: true},
		{ID: "a", TreeID: "t", Prerequisites: []string{"b"}, Active: true},
		{ID: "b", TreeID: "t", Prerequisites: []string{"a"}, Active: true},
	}
	err := Validate(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for cycle, got nil")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error should mention cycle, got: %v", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Cycle) != 2 || verr.Cycle[0] != "a" || verr.Cycle[1] != "b" {
		t.Errorf("got cycle %v, want [a b]", verr.Cycle)
	}
}

func TestValidate_SelfPrerequisiteIsCycle(t *testing.T) {
	nodes := []Node{
		{ID: "root", TreeID: "t", Active: true},
		{ID: "a", TreeID: "t", Prerequisites: []string{"a"}, Active: true},
	}
	if err := Validate(Tree{ID: "t"}, nodes); !errors.Is(err, ErrCyclicPrerequisites) {
		t.Fatalf("expected ErrCyclicPrerequisites, got %v", err)
	}
}

func TestValidate_CycleThroughInactiveNodeIgnored(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "t", Prerequisites: []string{"b"}, Active: true},
		{ID: "b", TreeID: "t", Prerequisites: []string{"a"}, Active: false},
	}
	if err := Validate(Tree{ID: "t"}, nodes); err != nil {
		t.Fatalf("cycle through inactive node should be ignored, got: %v", err)
	}
}

func TestValidate_DetectsDanglingPrereq(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "t", Active: true},
		{ID: "b", TreeID: "t", Prerequisites: []string{"nonexistent"}, Active: true},
	}
	err := Validate(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for dangling prerequisite, got nil")
	}
	if !strings.Contains(err.Error(), "nonexistent") {
		t.Errorf("error should mention the missing ID, got: %v", err)
	}
	if errors.Is(err, ErrCyclicPrerequisites) {
		t.Error("dangling prerequisite should not be reported as a cycle")
	}
}

func TestValidate_DetectsDuplicateID(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "t", Active: true},
		{ID: "a", TreeID: "t", Active: true},
	}
	err := Validate(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for duplicate ID, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_DetectsForeignTree(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "other", Active: true},
	}
	err := Validate(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for node of another tree, got nil")
	}
	if !strings.Contains(err.Error(), "belongs to tree") {
		t.Errorf("error should mention tree membership, got: %v", err)
	}
}

func TestValidate_NegativeReward(t *testing.T) {
	nodes := []Node{
		{ID: "a", TreeID: "t", XPReward: -5, Active: true},
	}
	err := Validate(Tree{ID: "t"}, nodes)
	if err == nil {
		t.Fatal("expected error for negative XPReward, got nil")
	}
	if !strings.Contains(err.Error(), "XPReward") {
		t.Errorf("error should mention XPReward, got: %v", err)
	}
}

func TestValidate_EmptyTreeIsValid(t *testing.T) {
	if err := Validate(Tree{ID: "t"}, nil); err != nil {
		t.Fatalf("empty tree should validate, got: %v", err)
	}
}
