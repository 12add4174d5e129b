package cli_test

import (
	"bytes"
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/svn2git/cmd/cli"
	"github.com/temirov/svn2git/internal/migrate"
)

func decodeEmbeddedConfiguration(t *testing.T) cli.ApplicationConfiguration {
	t.Helper()

	configurationData, configurationType := cli.EmbeddedDefaultConfiguration()
	require.NotEmpty(t, configurationData)

	viperInstance := viper.New()
	viperInstance.SetConfigType(configurationType)
	require.NoError(t, viperInstance.ReadConfig(bytes.NewReader(configurationData)))

	var configuration cli.ApplicationConfiguration
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	require.NoError(t, viperInstance.Unmarshal(&configuration, decodeHook))
	return configuration
}

func TestEmbeddedDefaultConfigurationMatchesCommandDefaults(t *testing.T) {
	configuration := decodeEmbeddedConfiguration(t)

	require.Equal(t, "info", configuration.Common.LogLevel)
	require.Equal(t, "structured", configuration.Common.LogFormat)
	require.Equal(t, migrate.DefaultCommandConfiguration().Sanitize(), configuration.Tools.Migrate.Sanitize())
}

func TestEmbeddedDefaultConfigurationReturnsCopy(t *testing.T) {
	firstCopy, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEmpty(t, firstCopy)
	firstCopy[0] = '#'

	secondCopy, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(t, "yaml", configurationType)
	require.NotEqual(t, firstCopy[0], secondCopy[0])
}
