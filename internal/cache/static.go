package cache

// staticCache maps embedded asset paths to content hashes for cache busting.
var staticCache = NewCache[string, string]()

func GetStaticHash(path string) (string, bool) {
	return staticCache.Get(path)
}

func SetStaticHash(path, hash string) {
	staticCache.Set(path, hash)
}

func StaticPaths() []string {
	return KeysWithPrefix(staticCache, "")
}
