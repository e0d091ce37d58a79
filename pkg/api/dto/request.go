package dto

// DefaultPageSize 未指定 limit 时每页条数
const DefaultPageSize = 20

// RunListQuery GET /api/v1/runs 的分页参数
type RunListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// Page 返回生效的 limit 与 offset
func (q RunListQuery) Page() (limit, offset int) {
	if q.Limit <= 0 {
		return DefaultPageSize, q.Offset
	}
	return q.Limit, q.Offset
}
