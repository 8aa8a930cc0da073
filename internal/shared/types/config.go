package types

// CommonConf 包含通用的行为配置
type CommonConf struct {
	BufferSize     int `ini:"buffer_size"`     // 单次 Read 的缓冲区大小
	MaxConnections int `ini:"max_connections"` // 并发处理的连接上限，0 表示不限制
}

// ListenerConf 包含上传监听端口的配置
type ListenerConf struct {
	Host        string `ini:"host"`
	Port        int    `ini:"port"`
	Backlog     int    `ini:"backlog"`
	Framing     string `ini:"framing"`      // auto, length, short-read
	ReadTimeout int    `ini:"read_timeout"` // 秒，0 表示不设置读超时
}

// StorageConf 包含落盘目录的配置
type StorageConf struct {
	Dir string `ini:"dir"`
}

// WebConf 包含监控页面的配置
type WebConf struct {
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config 是 socketdrop 的统一配置结构体
type Config struct {
	CommonConf   `ini:"common"`
	ListenerConf `ini:"listener"`
	StorageConf  `ini:"storage"`
	WebConf      `ini:"web"`
	LogConf      `ini:"log"`
}

// DefaultConfig returns the settings the receiver runs with when no ini file is present.
func DefaultConfig() *Config {
	return &Config{
		CommonConf: CommonConf{
			BufferSize: 8192,
		},
		ListenerConf: ListenerConf{
			Host:    "127.0.0.1",
			Port:    8000,
			Backlog: 5,
			Framing: "auto",
		},
		StorageConf: StorageConf{
			Dir: "./request",
		},
		LogConf: LogConf{
			Level: "info",
		},
	}
}
