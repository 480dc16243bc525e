package common

// MaskKey hides the middle of a credential so it can be shown in admin
// responses and logs without being usable.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
