package version

import "fmt"

// 这个变量是给 ldflags 注入用的
var (
	Tag    string = "dev"
	Commit string = "none"
	Date   string = "unknown"
)

// Info is the build information of the running binary.
type Info struct {
	Tag    string `json:"tag" yaml:"tag"`
	Commit string `json:"commit" yaml:"commit"`
	Date   string `json:"date" yaml:"date"`
}

// Current returns the injected build information.
func Current() Info {
	return Info{Tag: Tag, Commit: Commit, Date: Date}
}

func (i Info) String() string {
	return fmt.Sprintf("vaudio-bridge %s (%s) built at %s", i.Tag, i.Commit, i.Date)
}
