package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	parsersdk "github.com/reglet-dev/parserkit/sdk"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.String())
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, parsersdk.APIVersion, info.PluginAPI)
	assert.Contains(t, info.Full(), "plugin api "+parsersdk.APIVersion)
}
