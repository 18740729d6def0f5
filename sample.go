package encsearch

// SampleProducts returns the demo product catalog, in ingestion order.
// Ingesting it into an empty store assigns ids 1 through 10.
func SampleProducts() []Fields {
	return []Fields{
		{"name": `UltraFast Laptop 13"`, "description": "Lightweight laptop with 16GB RAM", "category": "Electronics", "price": 999},
		{"name": "Noise-Cancelling Headphones", "description": "Over-ear headphones, Bluetooth", "category": "Electronics", "price": 199},
		{"name": "Running Shoes - SpeedX", "description": "Comfortable running shoes for daily training", "category": "Footwear", "price": 120},
		{"name": "Smartphone Pro Max", "description": "6.7 inch display, 256GB storage", "category": "Electronics", "price": 1099},
		{"name": "Leather Wallet", "description": "Genuine leather, slim design", "category": "Accessories", "price": 49},
		{"name": "4K Monitor 27 inch", "description": "High-resolution display for creators", "category": "Electronics", "price": 349},
		{"name": "Yoga Mat", "description": "Non-slip yoga mat, 6mm thickness", "category": "Fitness", "price": 35},
		{"name": "Trail Running Shoes", "description": "Rugged outsole for trails", "category": "Footwear", "price": 140},
		{"name": "Wireless Mouse", "description": "Ergonomic mouse with long battery life", "category": "Electronics", "price": 29},
		{"name": "Classic T-Shirt", "description": "Cotton t-shirt, unisex fit", "category": "Apparel", "price": 19},
	}
}
