package evolution

import "errors"

var (
	// ErrConfiguration 表示运行配置不合法，在构造引擎时立即返回，不做任何修正
	ErrConfiguration = errors.New("配置错误")
	// ErrUnsupportedEncoding 表示不支持的染色体编码类型
	ErrUnsupportedEncoding = errors.New("不支持的编码类型")
	// ErrDimensionMismatch 表示染色体长度与问题维度不一致
	ErrDimensionMismatch = errors.New("染色体长度与问题维度不匹配")
)
