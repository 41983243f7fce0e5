package common

import (
	"time"
)

// Response 是标准 API 响应结构。
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// Meta 包含分页元数据。
type Meta struct {
	Page       int64 `json:"page"`
	PageSize   int64 `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// BaseParams 包含通用的分页参数。
type BaseParams struct {
	PageSize int64 `json:"page_size" form:"page_size" query:"page_size"`
	Page     int64 `json:"page" form:"page" query:"page"`
}

// LastPage asks a listing for its final page.
const LastPage = -1

// TotalPages returns how many pages of pageSize are needed for total items.
// An empty listing still has one (empty) page.
func TotalPages(total, pageSize int64) int64 {
	if pageSize <= 0 {
		return 1
	}
	if total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// NewMeta 规范化页码并计算总页数。
func NewMeta(total, page, pageSize int64) *Meta {
	if pageSize <= 0 {
		pageSize = 20
	}
	pages := TotalPages(total, pageSize)
	if page == LastPage {
		page = pages
	}
	if page <= 0 {
		page = 1
	}
	return &Meta{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
	}
}

// Offset returns the row offset of the page described by m.
func (m *Meta) Offset() int {
	if m == nil || m.Page <= 1 {
		return 0
	}
	return int((m.Page - 1) * m.PageSize)
}
