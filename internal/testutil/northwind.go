// Package testutil provides Northwind-style fixtures shared by tests.
//
// The fixture is deliberately small and covers the cases the compiler
// cares about: a nullable navigation that is null for one product, a
// duplicated product name, decimal and float columns with nulls, a complex
// property and open (dynamic) properties.
package testutil

import (
	"github.com/roach88/aggc/internal/ir"
	"github.com/roach88/aggc/internal/model"
)

// Northwind returns the fixture model:
//
//	Product (open): ProductID, ProductName, SupplierID, CategoryID?,
//	                UnitPrice decimal?, UnitsInStock int32?, Discontinued,
//	                Weight float64?, Category -> Category?, Supplier -> Supplier?
//	Category:       CategoryID, CategoryName, Description?
//	Supplier:       SupplierID, CompanyName, Address Address?
//	Address:        City?, Country?
func Northwind() *model.Model {
	return model.MustNew(
		model.Entity("Product",
			model.Prim("ProductID", ir.TypeInt32),
			model.Prim("ProductName", ir.TypeString),
			model.Prim("SupplierID", ir.TypeInt32),
			model.Prim("CategoryID", ir.TypeInt32.AsNullable()),
			model.Prim("UnitPrice", ir.TypeDecimal.AsNullable()),
			model.Prim("UnitsInStock", ir.TypeInt32.AsNullable()),
			model.Prim("Discontinued", ir.TypeBool),
			model.Prim("Weight", ir.TypeFloat64.AsNullable()),
			model.Nav("Category", "Category", true),
			model.Nav("Supplier", "Supplier", true),
		).AsOpen(),
		model.Entity("Category",
			model.Prim("CategoryID", ir.TypeInt32),
			model.Prim("CategoryName", ir.TypeString),
			model.Prim("Description", ir.TypeString.AsNullable()),
		),
		model.Entity("Supplier",
			model.Prim("SupplierID", ir.TypeInt32),
			model.Prim("CompanyName", ir.TypeString),
			model.ComplexProp("Address", "Address", true),
		),
		model.ComplexType("Address",
			model.Prim("City", ir.TypeString.AsNullable()),
			model.Prim("Country", ir.TypeString.AsNullable()),
		),
	)
}

// Categories.
var (
	Beverages  = ir.Record{"CategoryID": ir.Int(1), "CategoryName": ir.String("Beverages"), "Description": ir.String("Soft drinks, coffees, teas")}
	Condiments = ir.Record{"CategoryID": ir.Int(2), "CategoryName": ir.String("Condiments"), "Description": ir.Null{}}
)

// Suppliers.
var (
	ExoticLiquids = ir.Record{
		"SupplierID":  ir.Int(1),
		"CompanyName": ir.String("Exotic Liquids"),
		"Address":     ir.Record{"City": ir.String("London"), "Country": ir.String("UK")},
	}
	CajunDelights = ir.Record{
		"SupplierID":  ir.Int(2),
		"CompanyName": ir.String("New Orleans Cajun Delights"),
		"Address":     ir.Null{},
	}
	GrandmaKelly = ir.Record{
		"SupplierID":  ir.Int(3),
		"CompanyName": ir.String("Grandma Kelly's Homestead"),
		"Address":     ir.Record{"City": ir.String("Ann Arbor"), "Country": ir.String("USA")},
	}
)

// Products returns the product records:
//
//	ID Name                          Supp Cat         Price  Stock Disc  Weight Color
//	1  Chai                          1    Beverages   18.00  39    false 0.5    red
//	2  Chang                         1    Beverages   19.00  17    false 0.75   red
//	3  Aniseed Syrup                 1    Condiments  10.00  13    false null   -
//	4  Chef Anton's Cajun Seasoning  2    Condiments  22.00  53    false 1      blue
//	5  Chai                          3    null        null   0     true  null   -
func Products() []ir.Value {
	return []ir.Value{
		product(1, "Chai", ExoticLiquids, Beverages, ir.MustDecimal("18.00"), 39, false, ir.Float(0.5), "red"),
		product(2, "Chang", ExoticLiquids, Beverages, ir.MustDecimal("19.00"), 17, false, ir.Float(0.75), "red"),
		product(3, "Aniseed Syrup", ExoticLiquids, Condiments, ir.MustDecimal("10.00"), 13, false, ir.Null{}, ""),
		product(4, "Chef Anton's Cajun Seasoning", CajunDelights, Condiments, ir.MustDecimal("22.00"), 53, false, ir.Float(1), "blue"),
		product(5, "Chai", GrandmaKelly, nil, nil, 0, true, ir.Null{}, ""),
	}
}

func product(id int64, name string, supplier, category ir.Record, price ir.Value, stock int64, discontinued bool, weight ir.Value, color string) ir.Value {
	rec := ir.Record{
		"ProductID":    ir.Int(id),
		"ProductName":  ir.String(name),
		"SupplierID":   supplier["SupplierID"],
		"UnitsInStock": ir.Int(stock),
		"Discontinued": ir.Bool(discontinued),
		"Weight":       weight,
		"Supplier":     supplier,
	}
	if category != nil {
		rec["Category"] = category
		rec["CategoryID"] = category["CategoryID"]
	} else {
		rec["Category"] = ir.Null{}
		rec["CategoryID"] = ir.Null{}
	}
	if price != nil {
		rec["UnitPrice"] = price
	} else {
		rec["UnitPrice"] = ir.Null{}
	}
	if color != "" {
		rec["Color"] = ir.String(color)
	}
	return rec
}
