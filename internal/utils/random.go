package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/domain"
	"github.com/sysu-ecnc-dev/evolution-lab/backend/internal/problem"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "庆",
	"建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

func randomChineseName(intn func(int) int) string {
	surname := commonSurnames[intn(len(commonSurnames))]
	nameLength := intn(2) + 1
	name := ""

	for i := 0; i < nameLength; i++ {
		name += commonNameCharacters[intn(len(commonNameCharacters))]
	}
	return surname + name
}

func GenerateRandomChineseName() string {
	return randomChineseName(rand.Intn)
}

var roles = []domain.Role{
	domain.RoleMember,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for i := 0; i < digitsLength; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(len(letters))]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}

// CourseCode 取课程名每个汉字拼音的首字母，例如 高等数学 -> GDSX
func CourseCode(name string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.FirstLetter

	var code strings.Builder
	for _, p := range pinyin.Pinyin(name, args) {
		if len(p) > 0 {
			code.WriteString(strings.ToUpper(p[0]))
		}
	}
	return code.String()
}

var courseNames = []string{
	"高等数学", "线性代数", "大学物理", "程序设计", "数据结构", "操作系统",
	"计算机网络", "数据库系统", "概率统计", "离散数学", "编译原理", "人工智能",
}
var majorNames = []string{"计科", "软工", "网安", "信科", "电子"}
var weekdays = []string{"周一", "周二", "周三", "周四", "周五"}
var periodLabels = []string{"08:00", "10:00", "14:20", "16:20"}

// GenerateRandomInstance 随机生成一个排课实例，modules 不能超过内置课程名的数量
func GenerateRandomInstance(rng *rand.Rand, modules int) *problem.Instance {
	modules = min(max(modules, 1), len(courseNames))
	inst := &problem.Instance{HardConstraintPenalty: 10}

	lecturerNum := max(2, modules/2)
	for i := 0; i < lecturerNum; i++ {
		inst.Lecturers = append(inst.Lecturers, problem.Lecturer{ID: i, Name: randomChineseName(rng.Intn)})
	}

	groupNum := rng.Intn(3) + 2
	for i := 0; i < groupNum; i++ {
		inst.Groups = append(inst.Groups, problem.StudentGroup{
			ID:   i,
			Name: fmt.Sprintf("%s%d班", majorNames[rng.Intn(len(majorNames))], i+1),
			Size: rng.Intn(31) + 20, // 20~50
		})
	}

	roomNum := rng.Intn(3) + 3
	for i := 0; i < roomNum; i++ {
		inst.Rooms = append(inst.Rooms, problem.Room{
			ID:       i,
			Name:     fmt.Sprintf("教学楼A%d0%d", i/2+1, i%2+1),
			Capacity: rng.Intn(31) + 30, // 30~60
		})
	}

	dayNum := rng.Intn(2) + 2
	for _, day := range weekdays[:dayNum] {
		for _, label := range periodLabels {
			inst.Timeslots = append(inst.Timeslots, problem.Timeslot{
				Ordinal: len(inst.Timeslots),
				Day:     day,
				Label:   day + " " + label,
			})
		}
	}

	for i, idx := range rng.Perm(len(courseNames))[:modules] {
		name := courseNames[idx]
		inst.Modules = append(inst.Modules, problem.Module{
			ID:       i,
			Name:     fmt.Sprintf("%s (%s)", name, CourseCode(name)),
			Lecturer: rng.Intn(lecturerNum),
			Group:    rng.Intn(groupNum),
		})
	}

	return inst
}
