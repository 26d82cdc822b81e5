// 文件路径: internal/api/handler/etag.go
// 模块说明: 这是 internal 模块里的 etag 逻辑，为只读响应生成弱校验标签。
package handler

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
)

func formatETag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return "\"" + trimmed + "\""
}

func contentETag(body []byte) string {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return formatETag(strconv.FormatUint(h.Sum64(), 36))
}

// notModified sets the ETag header and reports whether the client copy is current.
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	w.Header().Set("ETag", etag)
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			return true
		}
	}
	return false
}
