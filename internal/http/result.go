package httpapi

// Result 统一响应信封，前端按 code 判断成败：
//
//	{"code": 2000, "type": "success", "message": "ok", "result": {...}}
//
// 失败时 code=-1，result 可以携带校验问题等详情。
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultTokenExpired 与 HTTP 401 一起返回，客户端据此重新获取 token
	ResultTokenExpired = 60401
)

const (
	typeSuccess = "success"
	typeError   = "error"
)

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: typeSuccess, Message: "ok", Result: result}
}

func Fail(message string) Result[any] {
	return FailWith[any](message, nil)
}

// FailWith 失败并附带详情
func FailWith[T any](message string, detail T) Result[T] {
	return Result[T]{Code: ResultError, Type: typeError, Message: message, Result: detail}
}

// TokenExpired bearer token 过期
func TokenExpired() Result[any] {
	return Result[any]{Code: ResultTokenExpired, Type: typeError, Message: "token expired"}
}
