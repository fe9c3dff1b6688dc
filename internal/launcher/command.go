package launcher

// ListingCommand returns the argv that lists target on the given GOOS.
func ListingCommand(goos, target string) []string {
	if goos == "windows" {
		return []string{"cmd", "/c", "dir", target}
	}
	return []string{"ls", "-la", target}
}
