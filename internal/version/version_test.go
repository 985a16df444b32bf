package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfoNeverEmpty(t *testing.T) {
	info := GetInfo()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.BuildDate)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestFillFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		},
	}

	var info Info
	fillFromBuildInfo(&info, bi)
	assert.Equal(t, Info{Version: "v1.2.3", GitCommit: "abc123", BuildDate: "2026-03-01T12:00:00Z"}, info)

	info = Info{Version: "v2.0.0", GitCommit: "set"}
	fillFromBuildInfo(&info, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}, Settings: bi.Settings})
	assert.Equal(t, "v2.0.0", info.Version)
	assert.Equal(t, "set", info.GitCommit)
	assert.Equal(t, "2026-03-01T12:00:00Z", info.BuildDate)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "netloc/"+GetInfo().Version, UserAgent())
}
