package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/ini.v1"
	"socketdrop/internal/shared/types"
)

// LoadIni 加载 socketdrop.ini 行为配置文件。
// cfg 中已有的值作为默认值，文件中缺失的键不会覆盖它们。
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("failed to map %s: %w", fileName, err)
	}
	ApplyEnv(cfg)
	return nil
}

// Load returns the defaults overlaid with fileName. A missing file is not an error.
func Load(fileName string) (*types.Config, error) {
	cfg := types.DefaultConfig()
	if _, err := os.Stat(fileName); err != nil {
		if os.IsNotExist(err) {
			ApplyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	if err := LoadIni(cfg, fileName); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv 使用环境变量覆盖配置
func ApplyEnv(cfg *types.Config) {
	overrideFromEnvInt(&cfg.ListenerConf.Port, "SOCKETDROP_PORT")
	overrideFromEnvString(&cfg.StorageConf.Dir, "SOCKETDROP_DIR")
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
