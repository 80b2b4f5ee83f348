// Package schemafile reads table definitions from files.
//
// Two formats are supported. HIC schema descriptors are XML files listing
// the columns of a delimited data file; every column becomes a String of
// size 100. CUE catalogs define any number of typed tables:
//
//	tables: {
//		TypeA: columns: [
//			{name: "personal_id", type: "String", size: 12},
//			{name: "measurement_1", type: "Long"},
//			"Long:measurement_2",
//		]
//	}
//
// A column is either a struct or a descriptor string.
package schemafile
