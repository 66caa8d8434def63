package memory

import "github.com/niksmo/storefront/internal/core/domain"

func price(v float64) *float64 {
	return &v
}

// SeedProducts returns the demo catalog.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ProductID:     "1",
			Name:          "Wireless Headphones",
			Price:         129.99,
			Category:      domain.CategoryElectronics,
			Image:         "https://picsum.photos/seed/headphones/600/600",
			Description:   "Over-ear Bluetooth headphones with active noise cancelling and 30h battery life.",
			Stock:         25,
			OriginalPrice: price(159.99),
		},
		{
			ProductID:   "2",
			Name:        "USB-C Hub",
			Price:       49.99,
			Category:    domain.CategoryElectronics,
			Image:       "https://picsum.photos/seed/hub/600/600",
			Description: "7-in-1 USB-C hub with HDMI, SD card reader and 100W power delivery.",
			Stock:       40,
		},
		{
			ProductID:   "3",
			Name:        "Mechanical Keyboard",
			Price:       89.0,
			Category:    domain.CategoryElectronics,
			Image:       "https://picsum.photos/seed/keyboard/600/600",
			Description: "Hot-swappable mechanical keyboard with RGB backlight and USB-C cable.",
			Stock:       12,
		},
		{
			ProductID:     "4",
			Name:          "Smart Watch",
			Price:         199.0,
			Category:      domain.CategoryElectronics,
			Image:         "https://picsum.photos/seed/watch/600/600",
			Description:   "Fitness tracking smart watch with heart rate monitor and GPS.",
			Stock:         8,
			OriginalPrice: price(249.0),
		},
		{
			ProductID:   "5",
			Name:        "Portable Speaker",
			Price:       59.9,
			Category:    domain.CategoryElectronics,
			Image:       "https://picsum.photos/seed/speaker/600/600",
			Description: "Waterproof portable speaker with deep bass and 12h playtime.",
			Stock:       0,
		},
		{
			ProductID:   "6",
			Name:        "Yoga Mat",
			Price:       25.0,
			Category:    domain.CategorySports,
			Image:       "https://picsum.photos/seed/yoga/600/600",
			Description: "Non-slip eco-friendly yoga mat, 6mm thick.",
			Stock:       60,
		},
		{
			ProductID:     "7",
			Name:          "Running Shoes",
			Price:         110.0,
			Category:      domain.CategorySports,
			Image:         "https://picsum.photos/seed/shoes/600/600",
			Description:   "Lightweight running shoes with breathable mesh upper.",
			Stock:         18,
			OriginalPrice: price(130.0),
		},
		{
			ProductID:   "8",
			Name:        "Water Bottle",
			Price:       15.0,
			Category:    domain.CategorySports,
			Image:       "https://picsum.photos/seed/bottle/600/600",
			Description: "Insulated stainless steel bottle, keeps drinks cold for 24h.",
			Stock:       100,
		},
		{
			ProductID:   "9",
			Name:        "Adjustable Dumbbells",
			Price:       149.0,
			Category:    domain.CategorySports,
			Image:       "https://picsum.photos/seed/dumbbells/600/600",
			Description: "Pair of adjustable dumbbells from 2 to 24 kg.",
			Stock:       4,
		},
		{
			ProductID:   "10",
			Name:        "Desk Lamp",
			Price:       25.0,
			Category:    domain.CategoryHome,
			Image:       "https://picsum.photos/seed/lamp/600/600",
			Description: "Dimmable LED desk lamp with USB charging port.",
			Stock:       35,
		},
		{
			ProductID:     "11",
			Name:          "Coffee Maker",
			Price:         79.99,
			Category:      domain.CategoryHome,
			Image:         "https://picsum.photos/seed/coffee/600/600",
			Description:   "Programmable drip coffee maker with thermal carafe.",
			Stock:         14,
			OriginalPrice: price(99.99),
		},
		{
			ProductID:   "12",
			Name:        "Scented Candle Set",
			Price:       19.5,
			Category:    domain.CategoryHome,
			Image:       "https://picsum.photos/seed/candle/600/600",
			Description: "Set of three soy wax candles with natural fragrances.",
			Stock:       50,
		},
		{
			ProductID:   "13",
			Name:        "Throw Blanket",
			Price:       34.0,
			Category:    domain.CategoryHome,
			Image:       "https://picsum.photos/seed/blanket/600/600",
			Description: "Soft knitted throw blanket for sofa and bed.",
			Stock:       22,
		},
		{
			ProductID:   "14",
			Name:        "Leather Wallet",
			Price:       39.5,
			Category:    domain.CategoryAccessories,
			Image:       "https://picsum.photos/seed/wallet/600/600",
			Description: "Slim genuine leather wallet with RFID protection.",
			Stock:       30,
		},
		{
			ProductID:     "15",
			Name:          "Sunglasses",
			Price:         65.0,
			Category:      domain.CategoryAccessories,
			Image:         "https://picsum.photos/seed/sunglasses/600/600",
			Description:   "Polarized sunglasses with UV400 protection.",
			Stock:         16,
			OriginalPrice: price(80.0),
		},
		{
			ProductID:   "16",
			Name:        "Canvas Backpack",
			Price:       54.0,
			Category:    domain.CategoryAccessories,
			Image:       "https://picsum.photos/seed/backpack/600/600",
			Description: "Water-resistant canvas backpack with padded laptop sleeve.",
			Stock:       3,
		},
		{
			ProductID:   "17",
			Name:        "Phone Case",
			Price:       12.99,
			Category:    domain.CategoryAccessories,
			Image:       "https://picsum.photos/seed/case/600/600",
			Description: "Shockproof phone case with raised edges.",
			Stock:       75,
		},
		{
			ProductID:   "18",
			Name:        "Wireless Charger",
			Price:       29.99,
			Category:    domain.CategoryElectronics,
			Image:       "https://picsum.photos/seed/charger/600/600",
			Description: "15W fast wireless charging pad for phones and earbuds.",
			Stock:       45,
		},
	}
}
