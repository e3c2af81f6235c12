// Package browserprocess tracks the browser processes a run has started so
// they can be killed when the run is torn down abnormally.
package browserprocess

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/qa-labs/ecom-e2e/common"
)

type processState struct {
	pid int
}

var (
	browserProcessRegister   = map[string]*processState{} //nolint:gochecknoglobals
	browserProcessRegisterMu = sync.Mutex{}               //nolint:gochecknoglobals
)

func key(ctx context.Context, pid int) string {
	return strconv.FormatInt(int64(pid), 10) + "/" + common.GetRunID(ctx)
}

// Register records pid under the run id stored in ctx.
func Register(ctx context.Context, logger *common.Logger, pid int) {
	browserProcessRegisterMu.Lock()
	defer browserProcessRegisterMu.Unlock()

	logger.Debugf("BrowserProcess:Register", "registered browser process pid %d", pid)

	browserProcessRegister[key(ctx, pid)] = &processState{pid: pid}
}

// Unregister forgets pid after a clean shutdown.
func Unregister(ctx context.Context, pid int) {
	browserProcessRegisterMu.Lock()
	defer browserProcessRegisterMu.Unlock()

	delete(browserProcessRegister, key(ctx, pid))
}

// Registered returns the pids registered for the run id in ctx, or every
// pid when ctx carries no run id.
func Registered(ctx context.Context) []int {
	browserProcessRegisterMu.Lock()
	defer browserProcessRegisterMu.Unlock()

	var pids []int
	for k, v := range browserProcessRegister {
		if matches(ctx, k) {
			pids = append(pids, v.pid)
		}
	}
	return pids
}

func matches(ctx context.Context, k string) bool {
	rID := common.GetRunID(ctx)
	return rID == "" || strings.HasSuffix(k, "/"+rID)
}

// ForceProcessShutdown kills the registered processes of the run id in ctx,
// or every registered process when ctx carries no run id. It is meant for
// interrupted runs, where browsers would otherwise outlive the suite.
func ForceProcessShutdown(ctx context.Context) {
	browserProcessRegisterMu.Lock()
	defer browserProcessRegisterMu.Unlock()

	for k, v := range browserProcessRegister {
		if !matches(ctx, k) {
			continue
		}
		delete(browserProcessRegister, k)

		p, err := os.FindProcess(v.pid)
		if err != nil {
			// optimistically continue and don't kill the process
			continue
		}
		// no need to check the error for waiting the process to release
		// its resources or whether we could kill it as we're already
		// dying.
		_ = p.Kill()
		_ = p.Release()
	}
}
