package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/alecthomas/participle"

	. "github.com/dave/jennifer/jen"
)

// File is a list of sum type declarations:
//
//	type Expression =
//		| Lit
//		| Integer of int64
//		| *FunctionType
//		;
//
// A case with "of" also declares the named type; other cases must be
// declared by hand.
type File struct {
	Declarations []*Declaration `@@*`
}

type Case struct {
	Pointer bool   `"|" @"*"?`
	Name    string `@Ident`
	Kind    string `( "of" @Ident )?`
}

type Declaration struct {
	Name  string  `"type" @Ident "="`
	Cases []*Case `@@+ ";"`
}

func GenerateDecls(pkgname string, t *File) string {
	f := NewFile(pkgname)
	f.HeaderComment("Code generated by adtgen. DO NOT EDIT.")

	for _, decl := range t.Declarations {
		marker := "is_" + decl.Name

		f.Type().Id(decl.Name).Interface(
			Id(marker).Params(),
		)

		for _, c := range decl.Cases {
			if c.Kind != "" {
				f.Type().Id(c.Name).Id(c.Kind)
			}

			receiver := Id("v").Id(c.Name)
			if c.Pointer {
				receiver = Id("v").Op("*").Id(c.Name)
			}
			f.Func().Params(receiver).Id(marker).Params().Block()
		}
	}

	return fmt.Sprintf("%#v", f)
}

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: adtgen INPUT OUTPUT PACKAGE")
		os.Exit(2)
	}

	parser := participle.MustBuild(&File{})

	in := os.Args[1]
	out := os.Args[2]
	pkgname := os.Args[3]

	inData, err := ioutil.ReadFile(in)
	if err != nil {
		panic(err)
	}

	decls := File{}
	err = parser.ParseBytes(inData, &decls)
	if err != nil {
		panic(err)
	}

	err = ioutil.WriteFile(out, []byte(GenerateDecls(pkgname, &decls)), 0644)
	if err != nil {
		panic(err)
	}
}
