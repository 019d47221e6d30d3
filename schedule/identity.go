package schedule

import "fmt"

// Identity is the triple (class, type, owner) that uniquely names a logical
// task. Two tasks with equal identity are the same task.
type Identity struct {
	Class string
	Type  string
	Owner string
}

// String renders the identity as "class/type/owner", used in log lines.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Class, id.Type, id.Owner)
}

// less gives the lexicographic tie-break order used when two tasks share a
// due date: (class, type, owner).
func (id Identity) less(other Identity) bool {
	if id.Class != other.Class {
		return id.Class < other.Class
	}
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	return id.Owner < other.Owner
}
