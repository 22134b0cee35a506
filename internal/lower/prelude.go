package lower

import (
	"strings"

	"github.com/ternarybob/cscript/internal/common"
)

// Prelude returns the C header block prepended to every generated translation
// unit. Everything in it is zero-cost unless the matching macro is used: the
// profiler only exists under -DCS_PROFILE_BUILD, and CS_HARDLINE is defined
// only when hardline mode is on so user code can branch on it.
func Prelude(hardline bool) string {
	var b strings.Builder
	b.Grow(4096)

	b.WriteString("// --- C-Script v" + common.GetVersion() + " prelude (zero-cost) ---\n")
	b.WriteString(`#include <stdio.h>
#include <stdint.h>
#include <stddef.h>
#include <stdlib.h>
#include <string.h>
#include <stdbool.h>

#define print(...) printf(__VA_ARGS__)
#if defined(__GNUC__) || defined(__clang__)
  #define likely(x)   __builtin_expect(!!(x),1)
  #define unlikely(x) __builtin_expect(!!(x),0)
#else
  #define likely(x)   (x)
  #define unlikely(x) (x)
#endif

// ---- Resource management with 'defer' ----
#define CS_CONCAT2(a,b) a##b
#define CS_CONCAT(a,b)  CS_CONCAT2(a,b)
#define defer(body) for (int CS_CONCAT(_cs_defer_, __COUNTER__) = 0; \
                         CS_CONCAT(_cs_defer_, __COUNTER__) == 0; \
                         (void)(body), CS_CONCAT(_cs_defer_, __COUNTER__)=1)

// ---- Exhaustive switch helpers ----
#define CS_SWITCH_EXHAUSTIVE(T, expr) do { int __cs_hit=0; T __cs_v=(expr); switch(__cs_v){
#define CS_CASE(x) case x: __cs_hit=1
#define CS_SWITCH_END(T, expr) default: break; } if(!__cs_hit) cs__enum_assert_##T(__cs_v); } while(0)

// ---- @unsafe pragmas ----
#if defined(_MSC_VER)
  #define CS_PRAGMA_PUSH __pragma(warning(push))
  #define CS_PRAGMA_POP  __pragma(warning(pop))
  #define CS_PRAGMA_RELAX __pragma(warning(disable:4244 4267 4018 4389))
#else
  #define CS_PRAGMA_PUSH _Pragma("GCC diagnostic push")
  #define CS_PRAGMA_POP  _Pragma("GCC diagnostic pop")
  #define CS_PRAGMA_RELAX _Pragma("GCC diagnostic ignored \"-Wconversion\"")\
                          _Pragma("GCC diagnostic ignored \"-Wsign-conversion\"")\
                          _Pragma("GCC diagnostic ignored \"-Wenum-conversion\"")
#endif
#define CS_UNSAFE_BEGIN do { CS_PRAGMA_PUSH; CS_PRAGMA_RELAX; } while(0)
#define CS_UNSAFE_END   do { CS_PRAGMA_POP; } while(0)

// ---- Function attributes for PGO ----
#if defined(_MSC_VER)
  #define CS_HOT
#else
  #define CS_HOT __attribute__((hot))
#endif
`)

	if hardline {
		b.WriteString("\n#define CS_HARDLINE 1\n")
	}

	b.WriteString(`
#ifdef CS_PROFILE_BUILD
typedef struct { const char* name; unsigned long long count; } _cs_prof_ent;
static _cs_prof_ent* _cs_prof_tbl = 0;
static size_t _cs_prof_cap = 0, _cs_prof_len = 0;
static FILE* _cs_prof_f = NULL;

static void _cs_prof_flush(void){
    if(!_cs_prof_f){
        const char* path = getenv("CS_PROFILE_OUT");
        if(!path) return;
        _cs_prof_f = fopen(path, "wb");
        if(!_cs_prof_f) return;
    }
    for(size_t i=0;i<_cs_prof_len;i++){
        if(_cs_prof_tbl[i].name){
            fprintf(_cs_prof_f, "%s %llu\n", _cs_prof_tbl[i].name, (unsigned long long)_cs_prof_tbl[i].count);
        }
    }
    fclose(_cs_prof_f); _cs_prof_f=NULL;
}

static void _cs_prof_init(void){
    atexit(_cs_prof_flush);
}

#if defined(__GNUC__) || defined(__clang__)
__attribute__((constructor))
#endif
static void _cs_prof_ctor(void){ _cs_prof_init(); }

static void cs_prof_hit(const char* name){
    // linear probe (tiny)
    for(size_t i=0;i<_cs_prof_len;i++){
        if(_cs_prof_tbl[i].name && strcmp(_cs_prof_tbl[i].name,name)==0){ _cs_prof_tbl[i].count++; return; }
    }
    if(_cs_prof_len==_cs_prof_cap){
        size_t ncap = _cs_prof_cap? _cs_prof_cap*2 : 32;
        _cs_prof_tbl = (_cs_prof_ent*)realloc(_cs_prof_tbl, ncap*sizeof(_cs_prof_ent));
        for(size_t i=_cs_prof_cap;i<ncap;i++){ _cs_prof_tbl[i].name=NULL; _cs_prof_tbl[i].count=0; }
        _cs_prof_cap = ncap;
    }
    _cs_prof_tbl[_cs_prof_len].name = name;
    _cs_prof_tbl[_cs_prof_len].count = 1;
    _cs_prof_len++;
}
#else
static void cs_prof_hit(const char* name){ (void)name; }
#endif
`)

	return b.String()
}
