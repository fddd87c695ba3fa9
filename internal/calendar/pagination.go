package calendar

// Page описывает одну страницу элементов.
type Page[T any] struct {
	Items    []T  `json:"items"`
	Page     int  `json:"page"`      // номер страницы (с 1)
	PageSize int  `json:"page_size"` // количество элементов на странице
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
	Total    int  `json:"total"` // общее количество элементов
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Window нормализует page/pageSize и возвращает limit/offset для запроса в БД.
func Window(page, pageSize int) (limit, offset, normPage, normSize int) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}
	return pageSize, (page - 1) * pageSize, page, pageSize
}

// NewPage собирает страницу из уже выбранных в БД элементов.
func NewPage[T any](items []T, total int64, page, pageSize int) Page[T] {
	_, offset, page, pageSize := Window(page, pageSize)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(offset+len(items)) < total,
		HasPrev:  page > 1,
		Total:    int(total),
	}
}
