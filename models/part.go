package models

// Part is a priced replacement component a technician can propose.
type Part struct {
	ID       string   `json:"_id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Services []string `json:"services,omitempty"`
	IsActive bool     `json:"isActive"`
}

// PartSelection is one proposed line: a part and a quantity.
type PartSelection struct {
	Part     string  `json:"part"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns price times quantity; non-positive quantities count as zero.
func (p PartSelection) Subtotal() float64 {
	if p.Quantity <= 0 {
		return 0
	}
	return p.Price * float64(p.Quantity)
}
