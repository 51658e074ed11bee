package substrate

import "github.com/google/uuid"

// defaultName generates a diagnostic name for a Queue/Dispatcher/ThreadPool
// that was not given an explicit one.
func defaultName(kind string) string {
	return kind + "-" + uuid.NewString()
}
