package utils

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
)

// maxBodyBytes 请求体上限,防止异常大的JSON负载。
const maxBodyBytes = 1 << 20

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// DecodeJSON 解析请求体到dst。解析失败时写入400响应并返回false,
// 调用方只需判断返回值即可。
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer io.Copy(io.Discard, r.Body)

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			RespondError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		RespondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
