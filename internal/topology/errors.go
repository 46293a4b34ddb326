package topology

import "fmt"

// DuplicateNameError is returned when a node name is declared twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("node %q already exists", e.Name)
}

// UnknownNodeError is returned when a link or an attachment references a
// node that was never declared.
type UnknownNodeError struct {
	Name string
	Type NodeType
}

func (e *UnknownNodeError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("unknown %s %q", e.Type, e.Name)
	}
	return fmt.Sprintf("unknown node %q", e.Name)
}

// SelfLinkError is returned when both ends of a link are the same node.
type SelfLinkError struct {
	Name string
}

func (e *SelfLinkError) Error() string {
	return fmt.Sprintf("link from %q to itself", e.Name)
}

// DuplicateLinkError is returned for a second link between the same pair.
type DuplicateLinkError struct {
	A, B string
}

func (e *DuplicateLinkError) Error() string {
	return fmt.Sprintf("link %s-%s already exists", e.A, e.B)
}

// InvalidNameError is returned for names that cannot back a Linux
// interface or namespace.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid node name %q: %s", e.Name, e.Reason)
}

// MaterializationError wraps a failure of the emulation engine while the
// topology is being instantiated.
type MaterializationError struct {
	Stage string
	Node  string
	Err   error
}

func (e *MaterializationError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("materialize %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("materialize %s %s: %v", e.Stage, e.Node, e.Err)
}

func (e *MaterializationError) Unwrap() error {
	return e.Err
}

// OrdinalOutOfRangeError is returned when an interface targets a switch
// ordinal the running network does not have.
type OrdinalOutOfRangeError struct {
	Interface string
	Ordinal   int
	Switches  int
}

func (e *OrdinalOutOfRangeError) Error() string {
	return fmt.Sprintf("interface %s: switch ordinal %d out of range (%d switches)",
		e.Interface, e.Ordinal, e.Switches)
}
