package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/okotelnikov/vpsshop-backend/pkg/db/models"
)

// PresetTariffs is the stock VPS lineup loaded into an empty catalog.
// Prices are the supplier's base prices in RUB before markup.
var PresetTariffs = []models.Tariff{
	{Location: "Россия", Specs: "3 Gb RAM / 2 Core CPU / SSD 40 Gb", Price: decimal.NewFromInt(533), Currency: "RUB"},
	{Location: "Россия", Specs: "4 Gb RAM / 3 Core CPU / SSD 40 Gb", Price: decimal.NewFromInt(598), Currency: "RUB"},
	{Location: "Россия", Specs: "4 Gb RAM / 2 Core CPU / SSD 40 Gb", Price: decimal.NewFromInt(637), Currency: "RUB"},
	{Location: "Россия", Specs: "6 Gb RAM / 4 Core CPU / SSD 40 Gb", Price: decimal.NewFromInt(650), Currency: "RUB"},
	{Location: "Россия", Specs: "8 Gb RAM / 4 Core CPU / SSD 70 Gb", Price: decimal.NewFromInt(1014), Currency: "RUB"},
	{Location: "Россия", Specs: "16 Gb RAM / 8 Core CPU / SSD 120 Gb", Price: decimal.NewFromInt(2054), Currency: "RUB"},
	{Location: "Россия", Specs: "24 Gb RAM / 10 Core CPU / SSD 120 Gb", Price: decimal.NewFromInt(2405), Currency: "RUB"},
	{Location: "Россия", Specs: "32 Gb RAM / 10 Core CPU / SSD 250 Gb", Price: decimal.NewFromInt(3510), Currency: "RUB"},
	{Location: "Россия", Specs: "64 Gb RAM / 20 Core CPU / SSD 500 Gb", Price: decimal.NewFromInt(6354), Currency: "RUB"},
	{Location: "Россия", Specs: "128 Gb RAM / 32 Core CPU / SSD 2000 Gb", Price: decimal.NewFromInt(10244), Currency: "RUB"},
	{Location: "Германия", Specs: "4 Gb RAM / 2 Core CPU / SSD 40 Gb", Price: decimal.NewFromInt(624), Currency: "RUB"},
}
