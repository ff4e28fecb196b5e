package env

import (
	"os"
	"path/filepath"
	"sync"
)

// Paths 定义了 bridge 运行时用到的路径
type Paths struct {
	HomeDir    string // 主目录
	SocketFile string // bridge 监听的 unix socket
	LogFile    string // vaudio-bridge.log
	LockFile   string // 单实例锁
}

var (
	current Paths
	once    sync.Once
)

// Get 获取全局路径配置
func Get() Paths {
	return current
}

var (
	// 给 ldflags 注入用的，例如发行版打包时指定 /var/lib/vaudio
	DefaultHome string
)

// HomeEnv overrides the home directory when no --home flag is given.
const HomeEnv = "VAUDIO_HOME"

// Init 初始化环境
// flagHome: 命令行传入的 --home 参数，为空则自动探测
func Init(flagHome string) error {
	var err error
	once.Do(func() {
		home := ResolveHome(flagHome)

		// 转换成绝对路径，避免后续逻辑混乱
		home, err = filepath.Abs(home)
		if err != nil {
			return
		}
		if err = os.MkdirAll(home, 0755); err != nil {
			return
		}
		current = PathsFor(home)
	})
	return err
}

// ResolveHome picks the home directory: flag, then $VAUDIO_HOME, then the
// ldflags default, then ~/.vaudio.
func ResolveHome(flagHome string) string {
	switch {
	case flagHome != "":
		return flagHome
	case os.Getenv(HomeEnv) != "":
		return os.Getenv(HomeEnv)
	case DefaultHome != "":
		return DefaultHome
	}
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".vaudio")
}

// PathsFor lays out the files under home.
func PathsFor(home string) Paths {
	return Paths{
		HomeDir:    home,
		SocketFile: filepath.Join(home, "bridge.sock"),
		LogFile:    filepath.Join(home, "vaudio-bridge.log"),
		LockFile:   filepath.Join(home, "vaudio-bridge.lock"),
	}
}
