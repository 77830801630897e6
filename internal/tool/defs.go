package tool

import "runtime"

// Definition contains the metadata required to manage the extractor binary.
type Definition struct {
	Name          string
	Executable    string
	VersionSwitch string
}

// Extractor describes the managed yt-dlp binary for the host platform.
func Extractor() Definition {
	return Definition{
		Name:          "yt-dlp",
		Executable:    executableName("yt-dlp"),
		VersionSwitch: "--version",
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

// assetCandidates lists release asset names acceptable for the host
// platform, most specific first.
func assetCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"yt-dlp_macos"}
	case "linux":
		switch runtime.GOARCH {
		case "amd64":
			return []string{"yt-dlp_linux"}
		case "arm64":
			return []string{"yt-dlp_linux_aarch64"}
		case "arm":
			return []string{"yt-dlp_linux_armv7l", "yt-dlp_linux_armv7"}
		}
	case "windows":
		return []string{"yt-dlp.exe"}
	}
	return nil
}
