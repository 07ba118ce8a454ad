package watch

import (
	"sync"
	"time"
)

// buildStatus tracks the outcome of the most recent build.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastBuild    time.Time
	lastBuildID  string
	builds       int
	hasGoodBuild bool // true if at least one successful build exists
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	bs.lastBuild = time.Now()
	bs.builds++
}

func (bs *buildStatus) setSuccess(id string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.lastBuild = time.Now()
	bs.lastBuildID = id
	bs.builds++
	bs.hasGoodBuild = true
}

// StatusResponse is the body of the health endpoint.
type StatusResponse struct {
	Status       string    `json:"status"`
	Builds       int       `json:"builds"`
	LastBuild    time.Time `json:"last_build,omitempty"`
	LastBuildID  string    `json:"last_build_id,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	HasGoodBuild bool      `json:"has_good_build"`
}

func (bs *buildStatus) snapshot() StatusResponse {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	resp := StatusResponse{
		Status:       "healthy",
		Builds:       bs.builds,
		LastBuild:    bs.lastBuild,
		LastBuildID:  bs.lastBuildID,
		HasGoodBuild: bs.hasGoodBuild,
	}
	if bs.lastError != nil {
		resp.Status = "degraded"
		resp.LastError = bs.lastError.Error()
	}
	return resp
}
