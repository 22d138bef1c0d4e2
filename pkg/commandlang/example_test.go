package commandlang_test

import (
	"fmt"

	"github.com/AlexanderGrooff/commandlang-go/pkg/commandlang"
)

type user struct{ name, disc string }

func (u *user) Field(f commandlang.Field) (interface{}, bool) {
	switch f {
	case commandlang.FieldName:
		return u.name, true
	case commandlang.FieldDiscriminator:
		return u.disc, true
	}
	return nil, false
}

func (u *user) String() string { return u.name + "#" + u.disc }

type invocation struct{ author *user }

func (i invocation) Field(f commandlang.Field) (interface{}, bool) {
	if f == commandlang.FieldAuthor {
		return i.author, true
	}
	return nil, false
}

func ExampleRender() {
	inv := invocation{author: &user{name: "Ann", disc: "0001"}}

	out, err := commandlang.Render(inv, `Hello {a:n}! [if a:d = "0001"](First!)[else](Welcome.)`)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(out)
	// Output: Hello Ann! First!
}

func ExampleEvaluate() {
	v, _ := commandlang.Evaluate(nil, "(1+2)*3 = 9")
	fmt.Println(v)
	// Output: 1
}

func ExampleTokenize() {
	tokens, _ := commandlang.Tokenize(`a:n = "Ann Lee"`)
	fmt.Printf("%q\n", tokens)
	// Output: ["a" ":" "n" "=" "\"Ann Lee\""]
}
