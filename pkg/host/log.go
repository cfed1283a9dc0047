package host

import (
	"fmt"

	"github.com/golang/glog"
)

// printNow logs and flushes immediately. Used on paths where the line
// must be out before the node blocks or floods the log buffer.
func printNow(format string, args ...interface{}) {
	glog.InfoDepth(1, fmt.Sprintf(format, args...))
	glog.Flush()
}
