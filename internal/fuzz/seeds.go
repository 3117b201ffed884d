package fuzztests

import "testing"

const maxFuzzInput = 1 << 16 // 64 KiB

var javaSeeds = []string{
	"",
	"class A {}\n",
	"package p;\n\nimport java.lang.String;\nimport java.util.*;\nclass A {}\n",
	"import java.lang.*;\nimport static java.lang.Math.max;\ninterface I { void m(); }\n",
	"interface I { void m(); }\ninterface J extends I { void m(); }\n",
	"abstract class A { abstract void m(); }\nabstract class B extends A { abstract void m(); A() {} }\n",
	"/** Doc. */\npublic abstract class A<T> extends B implements I, J {\n    private int x = 1, y;\n    static { init(); }\n}\n",
	"enum E { ONE, TWO; void e() {} }\n",
	"record R(int a) implements I {}\n",
	"@interface Ann { String value() default \"x\"; }\n",
	"class A { void m() { \"unterminated }\n",
	"import java.lang.String\nclass A {}\n", // missing semicolon
	"class A { int a; int b; } class B extends A {}\r\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range javaSeeds {
		f.Add([]byte(s))
	}
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
