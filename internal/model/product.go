package model

// MaxProductImages is the maximum number of image blobs kept per product.
const MaxProductImages = 4

// Product is one stocked item. The id is client-generated from the creation
// timestamp and immutable; the local store owns the record, the remote mirror
// holds a replica.
type Product struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Stock        int      `json:"stock"`
	MinStock     int      `json:"minStock"`
	CostPrice    int64    `json:"costPrice"`
	SellingPrice int64    `json:"sellingPrice"`
	Images       []string `json:"images"`
}

// Normalized returns a copy of p with field normalization applied: nil images
// become an empty slice, blank image slots are dropped, the image list is
// capped at MaxProductImages and negative numerics are clamped to zero.
func (p Product) Normalized() Product {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img == "" {
			continue
		}
		if len(images) == MaxProductImages {
			break
		}
		images = append(images, img)
	}
	p.Images = images

	if p.Stock < 0 {
		p.Stock = 0
	}
	if p.MinStock < 0 {
		p.MinStock = 0
	}
	if p.CostPrice < 0 {
		p.CostPrice = 0
	}
	if p.SellingPrice < 0 {
		p.SellingPrice = 0
	}

	return p
}

// LowStock reports whether the product is at or below its alert threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}
