package dto

// ListMeta describes one page of a list response.
type ListMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewListMeta(total int64, page, pageSize int) ListMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return ListMeta{Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}
}

// MessageOnlyResponse acknowledges an operation with no resource to return.
type MessageOnlyResponse struct {
	Message string `json:"message"`
}

type PageRequest struct {
	Page     int
	PageSize int
}
